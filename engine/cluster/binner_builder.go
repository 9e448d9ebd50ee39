package cluster

// BinnerBuilderOption is a functional option used to configure a Binner during construction.
type BinnerBuilderOption func(*binnerImpl)

// WithLabel sets the prefix of the binner's bind group provider label.
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - BinnerBuilderOption: a function that sets the label
func WithLabel(label string) BinnerBuilderOption {
	return func(b *binnerImpl) {
		b.label = label
	}
}
