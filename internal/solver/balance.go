package solver

// volumeBalance tracks the volume put into one wing, including the fluid
// already in the seed fracture. Fracture and leaked volumes live in the
// integrated state; the balance closes them into an efficiency.
type volumeBalance struct {
	injected float64
}

func newVolumeBalance(seed float64) volumeBalance {
	return volumeBalance{injected: seed}
}

func (b *volumeBalance) Observe(rate, dt float64) {
	b.injected += rate / 2 * dt
}

func (b *volumeBalance) Efficiency(fractureVolume float64) float64 {
	if b.injected <= 0 {
		return 0
	}
	return fractureVolume / b.injected
}
