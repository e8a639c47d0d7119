package fetch

// Site is one acquisition target: a stable identifier whose prefix
// encodes the country, plus point coordinates.
type Site struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DefaultSites returns the standard catalogue of major grain-producing
// regions.
func DefaultSites() []Site {
	return []Site{
		{ID: "UA_Center_Kirovohrad", Lat: 48.50, Lon: 32.26},
		{ID: "UA_South_Kherson", Lat: 46.63, Lon: 32.61},
		{ID: "UA_West_Ternopil", Lat: 49.55, Lon: 25.59},
		{ID: "UA_North_Chernihiv", Lat: 51.49, Lon: 31.28},
		{ID: "UA_East_Kharkiv", Lat: 49.99, Lon: 36.23},
		{ID: "UA_Vinnytsia", Lat: 49.23, Lon: 28.46},
		{ID: "UA_Poltava", Lat: 49.58, Lon: 34.55},
		{ID: "UA_Odesa", Lat: 46.48, Lon: 30.72},
		{ID: "UA_Zhytomyr", Lat: 50.25, Lon: 28.66},
		{ID: "UA_Lviv", Lat: 49.83, Lon: 24.02},
		{ID: "PL_Mazowieckie", Lat: 52.22, Lon: 21.01},
		{ID: "PL_Wielkopolskie", Lat: 52.40, Lon: 16.92},
		{ID: "DE_Bavaria", Lat: 48.79, Lon: 11.61},
		{ID: "DE_LowerSaxony", Lat: 52.63, Lon: 9.84},
		{ID: "FR_Beauce", Lat: 48.44, Lon: 1.51},
		{ID: "FR_Bordeaux", Lat: 44.83, Lon: -0.57},
		{ID: "RO_Wallachia", Lat: 44.42, Lon: 26.10},
		{ID: "RO_Moldavia", Lat: 46.56, Lon: 26.91},
		{ID: "HU_Puszta", Lat: 47.16, Lon: 19.50},
		{ID: "IT_PoValley", Lat: 45.07, Lon: 7.68},
		{ID: "ES_Andalusia", Lat: 37.38, Lon: -5.98},
		{ID: "ES_CastillaLeon", Lat: 41.65, Lon: -4.72},
		{ID: "NL_Flevoland", Lat: 52.52, Lon: 5.47},
		{ID: "UK_Lincolnshire", Lat: 53.23, Lon: -0.54},
		{ID: "US_Iowa", Lat: 41.87, Lon: -93.60},
		{ID: "US_Kansas", Lat: 39.01, Lon: -98.48},
		{ID: "US_Illinois", Lat: 40.63, Lon: -89.39},
		{ID: "US_Nebraska", Lat: 41.49, Lon: -99.90},
		{ID: "US_California_CentralValley", Lat: 36.77, Lon: -119.41},
		{ID: "US_NorthDakota", Lat: 47.55, Lon: -101.00},
		{ID: "US_Minnesota", Lat: 46.72, Lon: -94.68},
		{ID: "CA_Saskatchewan", Lat: 52.93, Lon: -106.45},
		{ID: "CA_Alberta", Lat: 53.93, Lon: -116.57},
		{ID: "CA_Manitoba", Lat: 49.89, Lon: -97.13},
		{ID: "BR_MatoGrosso", Lat: -12.68, Lon: -56.92},
		{ID: "BR_Parana", Lat: -25.25, Lon: -52.02},
		{ID: "BR_Goias", Lat: -15.82, Lon: -49.84},
		{ID: "AR_BuenosAires", Lat: -38.41, Lon: -63.61},
		{ID: "AR_Cordoba", Lat: -31.42, Lon: -64.18},
		{ID: "AR_SantaFe", Lat: -31.61, Lon: -60.69},
		{ID: "AR_LaPampa", Lat: -36.61, Lon: -64.28},
		{ID: "CN_Henan", Lat: 33.88, Lon: 113.61},
		{ID: "CN_Heilongjiang", Lat: 45.75, Lon: 126.63},
		{ID: "CN_Shandong", Lat: 36.65, Lon: 117.12},
		{ID: "CN_Jilin", Lat: 43.81, Lon: 126.55},
		{ID: "IN_Punjab", Lat: 30.73, Lon: 76.77},
		{ID: "IN_MadhyaPradesh", Lat: 23.47, Lon: 77.94},
		{ID: "IN_UttarPradesh", Lat: 26.84, Lon: 80.94},
		{ID: "KZ_Kostanay", Lat: 53.21, Lon: 63.63},
		{ID: "KZ_Akmola", Lat: 51.16, Lon: 71.47},
		{ID: "TR_Konya", Lat: 37.87, Lon: 32.48},
		{ID: "ZA_FreeState", Lat: -29.08, Lon: 26.15},
		{ID: "ZA_WesternCape", Lat: -33.92, Lon: 18.42},
		{ID: "AU_NewSouthWales", Lat: -31.84, Lon: 145.61},
		{ID: "AU_WesternAustralia", Lat: -31.95, Lon: 115.86},
		{ID: "AU_Victoria", Lat: -37.02, Lon: 144.96},
		{ID: "EG_NileDelta", Lat: 30.04, Lon: 31.23},
	}
}
