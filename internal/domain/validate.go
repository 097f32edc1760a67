package domain

import "fmt"

// Validate checks the static configuration for structural completeness
// before any stateful operation begins. It returns every problem found as
// an ordered list of human-readable messages, never stopping at the first:
// a run aborted for configuration reasons should tell the operator about
// all defects at once.
//
// Validate is a pure function: it does not mutate cfg and the same input
// always yields the same output.
func Validate(cfg Config) []string {
	var errs []string

	if cfg.Company.Name == "" {
		errs = append(errs, "company name is missing")
	}
	if cfg.Company.Details == nil {
		errs = append(errs, "company detail lines are missing")
	}
	if len(cfg.Clients) == 0 {
		errs = append(errs, "client list is empty")
	}

	for i, c := range cfg.Clients {
		label := c.Name
		if label == "" {
			label = fmt.Sprintf("client #%d", i+1)
			errs = append(errs, fmt.Sprintf("%s: name is missing", label))
		}
		if c.Details == nil {
			errs = append(errs, fmt.Sprintf("%s: detail lines are missing", label))
		}
		if len(c.EmailTo) == 0 {
			errs = append(errs, fmt.Sprintf("%s: primary recipient list is empty", label))
		}
		// The copy list may be empty, but it must exist: a missing list is a
		// roster defect, an empty one is a choice.
		if c.EmailCC == nil {
			errs = append(errs, fmt.Sprintf("%s: copy recipient list is missing", label))
		}
		if len(c.PaymentDetails) == 0 {
			errs = append(errs, fmt.Sprintf("%s: payment detail lines are missing", label))
		}
		if c.Services == nil {
			errs = append(errs, fmt.Sprintf("%s: service list is missing", label))
		}

		for j, s := range c.Services {
			line := fmt.Sprintf("%s: service #%d", label, j+1)
			if s.Description == "" {
				errs = append(errs, fmt.Sprintf("%s: description is missing", line))
			}
			if !s.Quantity.IsPositive() {
				errs = append(errs, fmt.Sprintf("%s: quantity must be a positive number", line))
			}
			if s.UnitPrice.IsNegative() {
				errs = append(errs, fmt.Sprintf("%s: unit price must not be negative", line))
			}
			if s.TaxRate.IsNegative() {
				errs = append(errs, fmt.Sprintf("%s: tax rate must not be negative", line))
			}
		}
	}

	return errs
}
