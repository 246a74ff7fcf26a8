package selection

import "github.com/kitaoji/hensachi/pkg/logger"

// BindingOption applies a configuration option to the Binding.
type BindingOption func(*Binding)

// WithLogger sets a custom logger for the binding.
func WithLogger(l logger.Logger) BindingOption {
	return func(b *Binding) {
		if l != nil {
			b.logger = l
		}
	}
}
