package session

import "github.com/Carmen-Shannon/oxy-prologue/engine/renderer"

// Effect is one stage of the post-process chain.
type Effect struct {
	Name    string
	Slot    int
	Enabled bool
}

// defaultChain is the full post-process chain in application order.
func defaultChain() []Effect {
	return []Effect{
		{Name: "tone-mapping", Slot: renderer.EffectToneMapping, Enabled: true},
		{Name: "rim-glow", Slot: renderer.EffectRimGlow, Enabled: true},
		{Name: "color-grading", Slot: renderer.EffectColorGrading, Enabled: true},
	}
}

// flags converts a chain into the per-slot flags the scene sends to the shader.
func flags(chain []Effect) [3]bool {
	var out [3]bool
	for _, e := range chain {
		if e.Slot >= 0 && e.Slot < len(out) {
			out[e.Slot] = e.Enabled
		}
	}
	return out
}
