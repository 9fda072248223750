package routing

// Per-sector parameter schemas. The model returns parameters as an untyped
// map; rather than passing the blob through, each sector declares the fields
// its handlers read and the type each field must carry. Fields that fail the
// check are dropped (with the drops reported), never fatal: a decision with
// imperfect parameters still routes.

type paramKind int

const (
	paramString paramKind = iota
	paramNumber
	paramBool
)

var sectorParamSchemas = map[Sector]map[string]paramKind{
	SectorIntake: {
		"topic":    paramString,
		"language": paramString,
	},
	SectorTechnical: {
		"symptom":        paramString,
		"service_id":     paramString,
		"outage_suspect": paramBool,
		"speed_mbps":     paramNumber,
	},
	SectorSales: {
		"plan_interest": paramString,
		"current_plan":  paramString,
		"budget":        paramNumber,
	},
	SectorBilling: {
		"invoice_ref": paramString,
		"document":    paramString,
		"amount":      paramNumber,
		"overdue":     paramBool,
	},
}

// SanitizeParameters filters a decision's parameters against the sector's
// schema. Returns the kept fields and the names of dropped ones. A nil map
// in yields a nil map out.
func SanitizeParameters(sector Sector, params map[string]any) (map[string]any, []string) {
	if len(params) == 0 {
		return nil, nil
	}
	schema := sectorParamSchemas[sector]

	kept := make(map[string]any, len(params))
	var dropped []string
	for k, v := range params {
		kind, known := schema[k]
		if !known || !matchesKind(v, kind) {
			dropped = append(dropped, k)
			continue
		}
		kept[k] = v
	}
	if len(kept) == 0 {
		kept = nil
	}
	return kept, dropped
}

func matchesKind(v any, kind paramKind) bool {
	switch kind {
	case paramString:
		_, ok := v.(string)
		return ok
	case paramNumber:
		// encoding/json decodes every JSON number as float64.
		_, ok := v.(float64)
		return ok
	case paramBool:
		_, ok := v.(bool)
		return ok
	default:
		return false
	}
}
