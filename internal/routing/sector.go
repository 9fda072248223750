package routing

import "strings"

// Sector is one of the fixed destination categories a message can be routed
// to. The set is closed and tenant-independent; tenants customize behavior
// through route rules and agent profiles, never by adding sectors.
type Sector string

const (
	// SectorIntake is the universal fallback/default sector and a valid
	// terminal destination in its own right.
	SectorIntake    Sector = "INTAKE"
	SectorTechnical Sector = "TECHNICAL"
	SectorSales     Sector = "SALES"
	SectorBilling   Sector = "BILLING"
)

// Sectors lists every valid sector in prompt order.
func Sectors() []Sector {
	return []Sector{SectorIntake, SectorTechnical, SectorSales, SectorBilling}
}

// Description returns the one-line taxonomy description embedded in the
// classification prompt.
func (s Sector) Description() string {
	switch s {
	case SectorIntake:
		return "general reception, greetings, unclear requests, anything that fits nowhere else"
	case SectorTechnical:
		return "connection problems, slow or intermittent service, equipment and installation support"
	case SectorSales:
		return "plans, upgrades, pricing questions, new subscriptions and coverage availability"
	case SectorBilling:
		return "invoices, payment slips, due dates, charges and payment issues"
	default:
		return ""
	}
}

// ParseSector validates a sector name. Matching is case-insensitive but
// otherwise strict; anything outside the four-value set fails.
func ParseSector(v string) (Sector, bool) {
	switch Sector(strings.ToUpper(strings.TrimSpace(v))) {
	case SectorIntake:
		return SectorIntake, true
	case SectorTechnical:
		return SectorTechnical, true
	case SectorSales:
		return SectorSales, true
	case SectorBilling:
		return SectorBilling, true
	default:
		return "", false
	}
}
