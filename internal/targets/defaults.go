package targets

var defaultPriceSelectors = []string{
	"[data-testid*='price']",
	"[class*='price']",
	"[class*='Price']",
	"[class*='fare']",
	".price",
	".fare",
}

// Defaults returns the built-in tracking list.
func Defaults() *Targets {
	return &Targets{
		Karats:  []int{14, 18, 21, 22, 24},
		Hotels:  defaultHotels(),
		Routes:  defaultRoutes(),
		Sources: defaultSources(),
	}
}

func defaultHotels() []Hotel {
	return []Hotel{
		{ID: "four-seasons-doha", Name: "فندق فور سيزونز الدوحة", SearchName: "Four Seasons Hotel Doha"},
		{ID: "grand-hyatt-doha", Name: "فندق جراند حياة الدوحة", SearchName: "Grand Hyatt Doha"},
		{ID: "intercontinental-doha", Name: "فندق إنتركونتيننتال الدوحة", SearchName: "InterContinental Doha"},
		{ID: "marriott-doha", Name: "فندق ماريوت الدوحة", SearchName: "Marriott Doha"},
		{ID: "sheraton-grand-doha", Name: "فندق ومنتجع شيراتون الدوحة", SearchName: "Sheraton Grand Doha Resort"},
		{ID: "concorde-doha", Name: "فندق كونكورد الدوحة", SearchName: "Concorde Hotel Doha"},
		{ID: "grand-mercure-city-centre", Name: "فندق جراند ميركيور سيتى سنتر الدوحة", SearchName: "Grand Mercure Doha City Centre"},
		{ID: "royal-qatar", Name: "فندق رويال قطر", SearchName: "Royal Qatar Hotel"},
		{ID: "retaj-al-rayan", Name: "فندق ريتاج الريان", SearchName: "Retaj Al Rayan Hotel"},
		{ID: "radisson-blu-doha", Name: "فندق راديسون بلو بروت مان", SearchName: "Radisson Blu Hotel Doha"},
		{ID: "movenpick-doha", Name: "فندق موفنبيك الدوحة", SearchName: "Mövenpick Hotel Doha"},
		{ID: "ezdan-hotels-doha", Name: "فنادق إزدان الدوحة", SearchName: "Ezdan Hotels Doha"},
		{ID: "le-park", Name: "فندق لي بارك", SearchName: "Le Park Hotel"},
		{ID: "saray-msheireb", Name: "فندق و اجنحة سراي مشيرب", SearchName: "Saray Msheireb Hotel"},
		{ID: "liwan-suites", Name: "اجنحة الليوان الفندقية", SearchName: "Liwan Hotel Suites"},
		{ID: "al-mansour-suites", Name: "المنصور سويت هوتيل", SearchName: "Al Mansour Suites Hotel"},
		{ID: "gulf-pearl-apartments", Name: "Gulf Pearl Hotel Apartments"},
		{ID: "mathema-premium", Name: "Mathema Premium Aparthotel"},
		{ID: "al-bustan", Name: "فندق البستان", SearchName: "Al Bustan Hotel"},
		{ID: "al-muntazah-plaza", Name: "فندق المنتزه بلازا", SearchName: "Al Muntazah Plaza Hotel"},
		{ID: "msheireb-hotel", Name: "فندق مشيرب", SearchName: "Msheireb Hotel"},
		{ID: "grand-qatar-palace", Name: "فندق جراند قطر بالاس", SearchName: "Grand Qatar Palace Hotel"},
		{ID: "grand-suite", Name: "فندق جراند سويت", SearchName: "Grand Suite Hotel"},
		{ID: "la-villa-palace", Name: "فندق قصر لا فيلا", SearchName: "La Villa Palace Hotel"},
		{ID: "retaj-residence-al-sadd", Name: "رتاج ريزيدنس السد", SearchName: "Retaj Residence Al Sadd"},
		{ID: "al-safa-royal-suites", Name: "الصفا للاجنحة الملكية", SearchName: "Al Safa Royal Suites"},
		{ID: "ezdan-hotel-suites", Name: "ازدان للاجنحة الفندقية", SearchName: "Ezdan Hotel Suites"},
		{ID: "madinat-doha-suites", Name: "أجنحة المدينة الدوحة", SearchName: "Madinat Doha Suites"},
		{ID: "park-inn-al-mansour", Name: "المنصور بارك إن فندق وشقق فندقية", SearchName: "Park Inn by Radisson Al Mansour"},
		{ID: "al-sadd-suites", Name: "فندق السد سويتس", SearchName: "Al Sadd Suites Hotel"},
		{ID: "white-moon-residence", Name: "وايت مون ريزيدنس", SearchName: "White Moon Residence"},
		{ID: "tgi-residence", Name: "TGI Residence"},
		{ID: "hyatt-residences-west-bay", Name: "حياة ريزدنسز دوحة ويست باي", SearchName: "Hyatt Residences Doha West Bay"},
	}
}

func route(code, commodity, destination, destinationCode string) Route {
	return Route{
		Code:            code,
		Commodity:       commodity,
		Origin:          "Doha",
		OriginCode:      "DOH",
		Destination:     destination,
		DestinationCode: destinationCode,
		Class:           "Economy",
		DurationMonths:  6,
	}
}

func defaultRoutes() []Route {
	return []Route{
		route("007331101", "كلفة تذكرة دوحة _ لندن - دوحة لمدة 6 (Semi flexble التذكرة السياحية) أشهر", "London", "LHR"),
		route("007331102", "كلفة تذكرة دوحة _ القاهرة - دوحة لمدة 6 (semi flexble التذكرة سياحية ( اشهر", "Cairo", "CAI"),
		route("007331103", "كلفة تذكرة دوحة_ كراتشي _ دوحة لمدة 6 اشهر ( التذكرة سياحية semi flexble)", "Karachi", "KHI"),
		route("007331104", "كلفة تذكرة دوحة_ دبي _ دوحة لمدة 6 اشهر ( التذكرة سياحية semi flexble)", "Dubai", "DXB"),
		route("007331105", "كلفة تذكرة دوحة_جدة _ دوحة لمدة 6 اشهر( التذكرة سياحية semi flexble)", "Jeddah", "JED"),
		route("007331106", "كلفة تذكرة دوحة_ بومباي _ دوحة لمدة 6 اشهر ( التذكرة سياحية semi flexble)", "Mumbai", "BOM"),
		route("007331107", "كلفة تذكرة دوحة_كولا لمبور _ دوحة لمدة 6 اشهر( التذكرة سياحية semi flexble)", "Kuala Lumpur", "KUL"),
		route("007331108", "كلفة تذكرة دوحة_ اسطنبول لمدة 6 اشهر ( التذكرة سياحية semi flexble)", "Istanbul", "IST"),
		route("007331109", "كلفة تذكرة دوحة_ بانكوك _ دوحة لمدة 6 اشهر ( التذكرة سياحية semi flexble)", "Bangkok", "BKK"),
		route("007331110", "كلفة تذكرة دوحة_تبليسي_ دوحة لمدة 6 اشهر ( التذكرة سياحية semi flexble)", "Tbilisi", "TBS"),
		route("007331111", "كلفة تذكرة دوحة_نيويورك دوحة لمدة 6 اشهر ( التذكرة سياحية semi flexble)", "New York", "JFK"),
	}
}

func defaultSources() []FlightSource {
	airline := func(id, name, agency, code, url string) FlightSource {
		return FlightSource{ID: id, Name: name, Agency: agency, Code: code, Kind: KindAirline, Airline: name, URL: url, Selectors: defaultPriceSelectors}
	}
	aggregator := func(id, name, agency, code, url string) FlightSource {
		return FlightSource{ID: id, Name: name, Agency: agency, Code: code, Kind: KindAggregator, URL: url, Selectors: defaultPriceSelectors}
	}
	return []FlightSource{
		airline("qatar-airways", "Qatar Airways", "الخطوط القطرية", "AIRL001",
			"https://www.qatarairways.com/app/booking/flight-selection?widget=QR&searchType=F&addTaxToFare=Y&minPurTime=0&selLang=en&tripType=R&fromStation={from}&toStation={to}&departing={depart}&returning={return}&bookingClass=E&adults=1&children=0&infants=0&ofw=0&teenager=0&flexibleDate=off&allowRedemption=N"),
		airline("british-airways", "British Airways", "الخطوط البريطانية", "AIRL018",
			"https://www.britishairways.com/nx/b/airselect/en/usa/book/search?trip=round&arrivalDate={return}&departureDate={depart}&from={from}&to={to}&travelClass=economy&adults=1&youngAdults=0&children=0&infants=0&bound=outbound"),
		airline("malaysia-airlines", "Malaysia Airlines", "الخطوط الماليزية", "AIRL024",
			"https://www.malaysiaairlines.com/qa/en/home.html"),
		airline("kuwait-airways", "Kuwait Airways", "الخطوط الكويتية", "AIRL025",
			"https://www.kuwaitairways.com/en"),
		airline("turkish-airlines", "Turkish Airlines", "الخطوط التركية", "AIRL026",
			"https://www.turkishairlines.com/en-qa/flights/booking/availability-international/"),
		airline("pia", "Pakistan International Airlines", "الخطوط الباكستانية", "AIRL020",
			"https://www.piac.com.pk"),
		aggregator("cheapoair", "CheapAir", "cheapair", "AIRL028",
			"https://www.cheapoair.com/air/listing?&d1={from}&r1={to}&dt1={depart_us}&dtype1=A&rtype1=C&d2={to}&r2={from}&dt2={return_us}&dtype2=C&rtype2=A&tripType=ROUNDTRIP&cl=ECONOMY&ad=1&se=0&ch=0&infs=0&infl=0"),
		aggregator("edreams", "eDreams", "edreams", "AIRL030",
			"https://www.edreams.qa/travel/#results/type=R;from={from};to={to};dep={depart};ret={return};buyPath=FLIGHTS_HOME_SEARCH_FORM;internalSearch=true"),
		aggregator("kayak", "KAYAK", "Kayak", "AIRL028",
			"https://www.kayak.ae/flights/{from}-{to}/{depart}/{return}?ucs=bzx8kr&sort=bestflight_a"),
		aggregator("ita-matrix", "ITA Matrix", "matrix", "AIRL028",
			"https://matrix.itasoftware.com/flights?search={ita_search}"),
	}
}
