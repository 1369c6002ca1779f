package config

import "time"

// Default source layout for the distributor demand workbook. The labels are
// matched after accent, case, and whitespace normalization.
const (
	DefaultSheet         = "2008-2023"
	DefaultHeaderLabel   = "CONSUMO DE GÁS NATURAL POR DISTRIBUIDORA SEM O SEGMENTO TERMELÉTRICO (em milhões de m³/dia)"
	DefaultNationalLabel = "TOTAL DISTRIBUIDORAS SEM O SEGMENTO TERMELÉTRICO"
	DefaultWorkbook      = "Demanda GN sem Termelétrica.xlsx"
)

// Remote boundary sources. Both return GeoJSON feature collections.
const (
	DefaultStatesURL    = "https://raw.githubusercontent.com/fititnt/gis-dataset-brasil/master/uf/geojson/uf.json"
	DefaultRegionsURL   = "https://servicodados.ibge.gov.br/api/v3/malhas/paises/BR?formato=application/vnd.geo+json&qualidade=maxima&intrarregiao=regiao"
	StateFeatureKey     = "GEOCODIGO"
	RegionFeatureKey    = "codarea"
	DefaultMapCenterLat = -14.2350
	DefaultMapCenterLon = -51.9253
)

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxConcurrentLoads    = 2

	// Paging
	DefaultSeriesPageSize = 120
	MaxSeriesPageSize     = 600
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
	DefaultFetchTimeout          = 20 * time.Second
)
