package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"pedidos-restaurante/models"
)

// pricedLine is a cart line priced against the catalog snapshot, before and
// after its line-level promotion
type pricedLine struct {
	kind      LineType
	id        string
	name      string
	unitPrice decimal.Decimal
	quantity  int
	subtotal  decimal.Decimal

	product *models.Product // product lines only
	added   []string
	removed []string
	members []pricedMember // package lines only

	promotion *models.Promotion
	discount  decimal.Decimal
}

// pricedMember is a member product of a package line
type pricedMember struct {
	product  *models.Product
	quantity int
	added    []string
	removed  []string
	delta    decimal.Decimal
}

// total is the line subtotal after its line-level discount
func (l *pricedLine) total() decimal.Decimal {
	return l.subtotal.Sub(l.discount)
}

// priceProductLine prices a product line: listed price plus the deltas of the
// added customizations that exist on the product, times quantity
func priceProductLine(line ProductLine, snap *catalogSnapshot) (*pricedLine, error) {
	product, err := snap.product(line.ProductID)
	if err != nil {
		return nil, err
	}

	added, delta := resolveCustomizations(product, line.Customizations.Added)
	unitPrice := product.Price.Add(delta)

	return &pricedLine{
		kind:      LineTypeProduct,
		id:        product.ID,
		name:      displayName(product.Name, added, line.Customizations.Removed),
		unitPrice: unitPrice,
		quantity:  line.Quantity,
		subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		product:   product,
		added:     added,
		removed:   nonNil(line.Customizations.Removed),
		discount:  decimal.Zero,
	}, nil
}

// pricePackageLine prices a package line: flat package price plus the deltas of
// the customizations added to its members, times quantity. Member deltas are
// flat adds and are not scaled by the member quantity.
func pricePackageLine(line PackageLine, snap *catalogSnapshot) (*pricedLine, error) {
	record, err := snap.record(line.PackageID)
	if err != nil {
		return nil, err
	}
	if record.Type != models.RecordTypePackage || record.Package == nil {
		return nil, &TypeMismatchError{
			ID:       line.PackageID,
			Expected: models.RecordTypePackage,
			Actual:   record.Type,
		}
	}
	pkg := record.Package

	unitPrice := pkg.Price
	members := make([]pricedMember, 0, len(pkg.Items))
	for _, item := range pkg.Items {
		product, err := snap.product(item.ProductID)
		if err != nil {
			return nil, err
		}

		member := pricedMember{
			product:  product,
			quantity: item.Quantity,
			added:    []string{},
			removed:  []string{},
			delta:    decimal.Zero,
		}
		if c, ok := line.Customizations[item.ProductID]; ok {
			member.added, member.delta = resolveCustomizations(product, c.Added)
			member.removed = nonNil(c.Removed)
			unitPrice = unitPrice.Add(member.delta)
		}
		members = append(members, member)
	}

	return &pricedLine{
		kind:      LineTypePackage,
		id:        pkg.ID,
		name:      pkg.Name,
		unitPrice: unitPrice,
		quantity:  line.Quantity,
		subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		members:   members,
		discount:  decimal.Zero,
	}, nil
}

// resolveCustomizations matches added names against the product's
// customizations by exact name. Unknown names are ignored.
func resolveCustomizations(product *models.Product, names []string) ([]string, decimal.Decimal) {
	matched := []string{}
	delta := decimal.Zero
	for _, name := range names {
		c, ok := product.FindCustomization(name)
		if !ok {
			continue
		}
		matched = append(matched, c.Name)
		delta = delta.Add(c.Price)
	}
	return matched, delta
}

// displayName appends "(+ Name)" per added and "(- Name)" per removed customization
func displayName(name string, added, removed []string) string {
	var b strings.Builder
	b.WriteString(name)
	for _, a := range added {
		b.WriteString(" (+ ")
		b.WriteString(a)
		b.WriteString(")")
	}
	for _, r := range removed {
		if strings.TrimSpace(r) == "" {
			continue
		}
		b.WriteString(" (- ")
		b.WriteString(r)
		b.WriteString(")")
	}
	return b.String()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
