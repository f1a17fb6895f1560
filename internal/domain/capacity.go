package domain

// CapacityConfig is the single active record of per-bucket maxima.
type CapacityConfig struct {
	ID  int64
	Max Quantities
}

func (c CapacityConfig) Validate() error {
	if c.Max.Validate() != nil {
		return ErrInvalidCapacity
	}
	return nil
}
