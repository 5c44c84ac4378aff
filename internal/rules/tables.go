package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RateOrigin tags whether a rate came from the configured table or from the
// documented fallback, so that fallback use stays visible to callers and tests.
type RateOrigin string

const (
	RateFromTable   RateOrigin = "table"
	RateFromDefault RateOrigin = "default"
)

// Rate is a resolved tax rate in percent, tagged with its origin.
type Rate struct {
	Percent float64
	Origin  RateOrigin
}

// Tables holds the static fiscal lookup data. Loaded once at startup and
// read-only afterwards; safe for concurrent pipeline runs.
type Tables struct {
	ICMSByState     map[string]float64
	ICMSDefault     float64
	IPIByClass      map[string]float64
	PISCumulative   float64
	PISNonCum       float64
	COFINSCum       float64
	COFINSNonCum    float64
	CFOPs           map[string]string // code -> description
	OperationDigits map[string][]byte // operation type -> allowed leading digits
}

// tablesFile is the YAML override format accepted by LoadTables.
type tablesFile struct {
	ICMS struct {
		States  map[string]float64 `yaml:"states"`
		Default float64            `yaml:"default"`
	} `yaml:"icms"`
	IPI   map[string]float64 `yaml:"ipi"`
	CFOPs map[string]string  `yaml:"cfops"`
}

// DefaultTables returns the built-in fiscal tables: internal ICMS rates for
// all 27 federation units, IPI rates by product class, PIS/COFINS regime
// rates, and the canonical CFOP table.
func DefaultTables() *Tables {
	return &Tables{
		ICMSByState: map[string]float64{
			"AC": 17, "AL": 18, "AM": 18, "AP": 18, "BA": 18, "CE": 18,
			"DF": 18, "ES": 17, "GO": 17, "MA": 18, "MG": 18, "MS": 17,
			"MT": 17, "PA": 17, "PB": 18, "PE": 18, "PI": 18, "PR": 18,
			"RJ": 18, "RN": 18, "RO": 17.5, "RR": 17, "RS": 18, "SC": 17,
			"SE": 18, "SP": 18, "TO": 18,
		},
		ICMSDefault: 18,
		IPIByClass: map[string]float64{
			"beverages":   10,
			"cigarettes":  300,
			"cosmetics":   15,
			"electronics": 10,
			"automobiles": 25,
			"exempt":      0,
		},
		PISCumulative: 0.65,
		PISNonCum:     1.65,
		COFINSCum:     3.0,
		COFINSNonCum:  7.6,
		CFOPs: map[string]string{
			// Inbound
			"1101": "Purchase for industrialization or rural production",
			"1102": "Purchase for resale",
			"1103": "Purchase for fixed assets",
			"1201": "Return of own-production sale",
			"1202": "Return of merchandise sale",
			"1203": "Return of own-establishment production sale",
			// Outbound, intrastate
			"5101": "Sale of own-establishment production",
			"5102": "Sale of merchandise acquired from third parties",
			"5103": "Sale of own production made off premises",
			"5104": "Sale of third-party merchandise made off premises",
			"5151": "Transfer of own-establishment production",
			"5152": "Transfer of merchandise acquired from third parties",
			"5201": "Return of purchase for industrialization",
			"5202": "Return of purchase for resale",
			"5401": "Sale of own production under tax substitution",
			"5403": "Sale of third-party merchandise under tax substitution",
			// Outbound, interstate
			"6101": "Sale of own-establishment production",
			"6102": "Sale of merchandise acquired from third parties",
			"6103": "Sale of own production made off premises",
			"6151": "Transfer of own-establishment production",
			"6152": "Transfer of merchandise acquired from third parties",
			"6201": "Return of purchase for industrialization",
			"6202": "Return of purchase for resale",
			// Export
			"7101": "Sale of own-establishment production",
			"7102": "Sale of merchandise acquired from third parties",
		},
		OperationDigits: map[string][]byte{
			"purchase": {'1', '2'},
			"sale":     {'5', '6', '7'},
			"transfer": {'5', '6'},
			"return":   {'1', '2', '5', '6'},
		},
	}
}

// LoadTables reads a YAML override file and merges it over the defaults.
// Entries present in the file replace the built-in ones; everything else is
// kept. An empty path returns the defaults unchanged.
func LoadTables(path string) (*Tables, error) {
	t := DefaultTables()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables file: %w", err)
	}

	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tables file %s: %w", path, err)
	}

	for uf, rate := range f.ICMS.States {
		t.ICMSByState[uf] = rate
	}
	if f.ICMS.Default > 0 {
		t.ICMSDefault = f.ICMS.Default
	}
	for class, rate := range f.IPI {
		t.IPIByClass[class] = rate
	}
	for code, desc := range f.CFOPs {
		t.CFOPs[code] = desc
	}

	return t, nil
}

// ICMSRate resolves the internal ICMS rate for a state, falling back to the
// national default rate when the state is not in the table.
func (t *Tables) ICMSRate(uf string) Rate {
	if rate, ok := t.ICMSByState[uf]; ok {
		return Rate{Percent: rate, Origin: RateFromTable}
	}
	return Rate{Percent: t.ICMSDefault, Origin: RateFromDefault}
}

// IPIRate resolves the IPI rate for a product class. Unknown classes resolve
// to zero, tagged as the default.
func (t *Tables) IPIRate(class string) Rate {
	if rate, ok := t.IPIByClass[class]; ok {
		return Rate{Percent: rate, Origin: RateFromTable}
	}
	return Rate{Percent: 0, Origin: RateFromDefault}
}

// PISRate resolves the PIS rate for a tax regime. An unspecified regime
// resolves to the non-cumulative rate, tagged as the default.
func (t *Tables) PISRate(regime string) Rate {
	switch regime {
	case "cumulative":
		return Rate{Percent: t.PISCumulative, Origin: RateFromTable}
	case "non_cumulative":
		return Rate{Percent: t.PISNonCum, Origin: RateFromTable}
	}
	return Rate{Percent: t.PISNonCum, Origin: RateFromDefault}
}

// COFINSRate resolves the COFINS rate for a tax regime.
func (t *Tables) COFINSRate(regime string) Rate {
	switch regime {
	case "cumulative":
		return Rate{Percent: t.COFINSCum, Origin: RateFromTable}
	case "non_cumulative":
		return Rate{Percent: t.COFINSNonCum, Origin: RateFromTable}
	}
	return Rate{Percent: t.COFINSNonCum, Origin: RateFromDefault}
}

// KnownCFOP reports whether the code is in the canonical table.
func (t *Tables) KnownCFOP(code string) bool {
	_, ok := t.CFOPs[code]
	return ok
}

// CFOPDescription returns the canonical description for a code, empty when
// the code is unknown.
func (t *Tables) CFOPDescription(code string) string {
	return t.CFOPs[code]
}

// CompatibleCFOP reports whether the code's leading digit is permitted for
// the declared operation type. Unknown operation types are not constrained.
func (t *Tables) CompatibleCFOP(code, operation string) bool {
	if code == "" {
		return false
	}
	allowed, ok := t.OperationDigits[operation]
	if !ok {
		return true
	}
	for _, d := range allowed {
		if code[0] == d {
			return true
		}
	}
	return false
}
