package weathertest

import _ "embed"

// OpenMeteoExtended is a canned Open-Meteo response for Berlin covering
// 2025-03-15 to 2025-03-21 with the extended daily and current fields.
//
//go:embed openmeteo_extended.json
var OpenMeteoExtended []byte
