package documents

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/masterdata/clients"
	"github.com/invoicepro/invoicepro/internal/masterdata/companies"
	"github.com/invoicepro/invoicepro/internal/money"
)

// EWayBillVersion is the GSTN bulk upload schema version.
const EWayBillVersion = "1.0.0421"

// EWayBill is the GSTN e-way bill bulk upload document.
type EWayBill struct {
	Version   string        `json:"version"`
	BillLists []EWayBillDoc `json:"billLists"`
}

// EWayBillDoc describes one consignment.
type EWayBillDoc struct {
	UserGSTIN          string         `json:"userGstin"`
	SupplyType         string         `json:"supplyType"`
	SubSupplyType      string         `json:"subSupplyType"`
	DocType            string         `json:"docType"`
	DocNo              string         `json:"docNo"`
	DocDate            string         `json:"docDate"`
	FromGSTIN          string         `json:"fromGstin"`
	FromTrdName        string         `json:"fromTrdName"`
	FromAddr1          string         `json:"fromAddr1"`
	FromAddr2          string         `json:"fromAddr2"`
	FromPlace          string         `json:"fromPlace"`
	FromPincode        string         `json:"fromPincode"`
	FromStateCode      string         `json:"fromStateCode"`
	ActFromStateCode   string         `json:"actFromStateCode"`
	ToGSTIN            string         `json:"toGstin"`
	ToTrdName          string         `json:"toTrdName"`
	ToAddr1            string         `json:"toAddr1"`
	ToAddr2            string         `json:"toAddr2"`
	ToPlace            string         `json:"toPlace"`
	ToPincode          string         `json:"toPincode"`
	ToStateCode        string         `json:"toStateCode"`
	ActToStateCode     string         `json:"actToStateCode"`
	TransactionType    string         `json:"transactionType"`
	OtherValue         float64        `json:"otherValue"`
	TotInvValue        float64        `json:"totInvValue"`
	CGSTValue          float64        `json:"cgstValue"`
	SGSTValue          float64        `json:"sgstValue"`
	IGSTValue          float64        `json:"igstValue"`
	CessValue          float64        `json:"cessValue"`
	TransMode          string         `json:"transMode"`
	TransDistance      string         `json:"transDistance"`
	TransporterName    string         `json:"transporterName"`
	TransporterID      string         `json:"transporterId"`
	TransporterDocNo   string         `json:"transporterDocNo"`
	TransporterDocDate string         `json:"transporterDocDate"`
	VehicleNo          string         `json:"vehicleNo"`
	VehicleType        string         `json:"vehicleType"`
	ItemList           []EWayBillItem `json:"itemList"`
}

// EWayBillItem is one goods line.
type EWayBillItem struct {
	ItemNo            int     `json:"itemNo"`
	ProductName       string  `json:"productName"`
	ProductDesc       string  `json:"productDesc"`
	HSNCode           string  `json:"hsnCode"`
	QtyUnit           string  `json:"qtyUnit"`
	Quantity          float64 `json:"quantity"`
	TaxableAmount     float64 `json:"taxableAmount"`
	IGSTRate          float64 `json:"igstRate"`
	IGSTValue         float64 `json:"igstValue"`
	CGSTRate          float64 `json:"cgstRate"`
	CGSTValue         float64 `json:"cgstValue"`
	SGSTRate          float64 `json:"sgstRate"`
	SGSTValue         float64 `json:"sgstValue"`
	CessRate          float64 `json:"cessRate"`
	CessValue         float64 `json:"cessValue"`
	CessNonAdvolValue float64 `json:"cessNonAdvolValue"`
}

// Address is a free-form postal address split the way the portal expects.
type Address struct {
	Line1 string
	Line2 string
	Place string
}

// SplitAddress takes the first line, the remaining lines and the text after
// the last comma as the place.
func SplitAddress(raw string) Address {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if raw == "" {
		return Address{}
	}
	lines := strings.Split(raw, "\n")
	addr := Address{Line1: strings.TrimSpace(lines[0])}
	if len(lines) > 1 {
		addr.Line2 = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}
	if i := strings.LastIndex(raw, ","); i >= 0 {
		addr.Place = strings.TrimSpace(raw[i+1:])
	} else {
		addr.Place = strings.TrimSpace(lines[len(lines)-1])
	}
	return addr
}

// BuildEWayBill lays out inv as an outward supply invoice. Intra-state GST
// is assumed so IGST and cess are zero.
func BuildEWayBill(inv invoicing.Invoice, company companies.Company, client clients.Client) EWayBill {
	from := SplitAddress(company.Address)
	to := SplitAddress(client.Address)
	toState := inv.StateCode
	if toState == "" && len(client.GSTIN) >= 2 {
		toState = client.GSTIN[:2]
	}

	doc := EWayBillDoc{
		UserGSTIN:        company.GSTIN,
		SupplyType:       "O",
		SubSupplyType:    "1",
		DocType:          "INV",
		DocNo:            inv.InvoiceNumber,
		DocDate:          inv.InvoiceDate.Format("02/01/2006"),
		FromGSTIN:        company.GSTIN,
		FromTrdName:      company.Name,
		FromAddr1:        from.Line1,
		FromAddr2:        from.Line2,
		FromPlace:        from.Place,
		FromStateCode:    company.StateCode(),
		ActFromStateCode: company.StateCode(),
		ToGSTIN:          client.GSTIN,
		ToTrdName:        client.Name,
		ToAddr1:          to.Line1,
		ToAddr2:          to.Line2,
		ToPlace:          to.Place,
		ToStateCode:      toState,
		ActToStateCode:   toState,
		TransactionType:  "1",
		OtherValue:       0,
		TotInvValue:      num(inv.Total),
		CGSTValue:        num(inv.CGSTAmount),
		SGSTValue:        num(inv.SGSTAmount),
		IGSTValue:        0,
		CessValue:        0,
		ItemList:         make([]EWayBillItem, 0, len(inv.Items)),
	}
	for i, item := range inv.Items {
		doc.ItemList = append(doc.ItemList, EWayBillItem{
			ItemNo:            i + 1,
			ProductName:       item.Description,
			ProductDesc:       item.Description,
			HSNCode:           item.SACCode,
			Quantity:          num(item.Quantity),
			TaxableAmount:     num(item.Total),
			IGSTRate:          0,
			IGSTValue:         0,
			CGSTRate:          num(inv.CGSTRate),
			CGSTValue:         num(money.Percent(item.Total, inv.CGSTRate)),
			SGSTRate:          num(inv.SGSTRate),
			SGSTValue:         num(money.Percent(item.Total, inv.SGSTRate)),
			CessRate:          0,
			CessValue:         0,
			CessNonAdvolValue: 0,
		})
	}
	return EWayBill{Version: EWayBillVersion, BillLists: []EWayBillDoc{doc}}
}

// num renders amounts as JSON numbers, which the portal requires.
func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
