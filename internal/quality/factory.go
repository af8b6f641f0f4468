package quality

import "telc-go/internal/config"

// NewFromConfig creates a Validator from the validator config section. Unset
// (zero) values keep the defaults.
func NewFromConfig(cfg config.ValidatorConfig) *Validator {
	c := DefaultConfig()
	setInt(&c.Threshold, cfg.Threshold)
	setFloat(&c.MinLengthRatio, cfg.MinLengthRatio)
	setFloat(&c.MaxLengthRatio, cfg.MaxLengthRatio)

	w := cfg.Weights
	setInt(&c.Weights.TooShort, w.TooShort)
	setInt(&c.Weights.TooLong, w.TooLong)
	setInt(&c.Weights.MissingScript, w.MissingScript)
	setInt(&c.Weights.LatinHeavy, w.LatinHeavy)
	setInt(&c.Weights.NumberMismatch, w.NumberMismatch)
	setInt(&c.Weights.Punctuation, w.Punctuation)
	setInt(&c.Weights.HTMLEntity, w.HTMLEntity)
	setInt(&c.Weights.Encoding, w.Encoding)
	setInt(&c.Weights.Artifact, w.Artifact)

	return New(c)
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
