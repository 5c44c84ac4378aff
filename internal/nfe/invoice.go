package nfe

import "time"

// Operation type tags carried by the canonical invoice record.
const (
	OperationPurchase = "purchase"
	OperationSale     = "sale"
	OperationTransfer = "transfer"
	OperationReturn   = "return"
)

// Tax regimes selecting the PIS/COFINS rate pair.
const (
	RegimeCumulative    = "cumulative"
	RegimeNonCumulative = "non_cumulative"
)

// AccessKeyLength is the fixed length of an NF-e access key.
const AccessKeyLength = 44

// Invoice is the canonical NF-e record as produced by the document-ingestion
// service. Monetary values are in BRL. The record is treated as immutable for
// the duration of a pipeline run.
type Invoice struct {
	Number        string `json:"number"`
	Series        string `json:"series,omitempty"`
	AccessKey     string `json:"access_key,omitempty"` // 44 digits when present
	IssuerCNPJ    string `json:"issuer_cnpj"`
	RecipientCNPJ string `json:"recipient_cnpj"`

	GoodsValue  float64 `json:"goods_value"`
	ICMSBase    float64 `json:"icms_base,omitempty"`
	ICMSValue   float64 `json:"icms_value"`
	IPIValue    float64 `json:"ipi_value"`
	PISValue    float64 `json:"pis_value"`
	COFINSValue float64 `json:"cofins_value"`
	Discount    float64 `json:"discount,omitempty"`
	TotalValue  float64 `json:"total_value"`

	CFOP          string `json:"cfop"`
	OperationType string `json:"operation_type"` // purchase, sale, transfer, return
	IssuerState   string `json:"issuer_state,omitempty"`
	ProductClass  string `json:"product_class,omitempty"` // IPI rate class
	TaxRegime     string `json:"tax_regime,omitempty"`

	IssueDate time.Time `json:"issue_date"`
	RawXML    string    `json:"raw_xml,omitempty"`
}

// ibgeUF maps the IBGE state code embedded in the first two digits of the
// access key to the federation unit.
var ibgeUF = map[string]string{
	"11": "RO", "12": "AC", "13": "AM", "14": "RR", "15": "PA",
	"16": "AP", "17": "TO", "21": "MA", "22": "PI", "23": "CE",
	"24": "RN", "25": "PB", "26": "PE", "27": "AL", "28": "SE",
	"29": "BA", "31": "MG", "32": "ES", "33": "RJ", "35": "SP",
	"41": "PR", "42": "SC", "43": "RS", "50": "MS", "51": "MT",
	"52": "GO", "53": "DF",
}

// UF resolves the issuing state, preferring the IBGE code embedded in the
// access key and falling back to the declared issuer state.
func (inv Invoice) UF() string {
	if len(inv.AccessKey) >= 2 {
		if uf, ok := ibgeUF[inv.AccessKey[:2]]; ok {
			return uf
		}
	}
	return inv.IssuerState
}
