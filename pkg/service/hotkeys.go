package service

import (
	"github.com/keathmilligan/flowstt/pkg/config"
	"github.com/keathmilligan/flowstt/pkg/segmenter"
)

// ToSegmenterHotkeys converts the persisted config representation of PTT
// chords (`{"keys": [...]}`, matching spec §6's wire shape) into the flat
// form segmenter.PTT consumes, so pkg/config does not need to import
// pkg/segmenter (spec §9 capability-set decoupling).
func ToSegmenterHotkeys(combos []config.HotkeyCombination) []segmenter.HotkeyCombination {
	out := make([]segmenter.HotkeyCombination, len(combos))
	for i, c := range combos {
		out[i] = segmenter.HotkeyCombination(c.Keys)
	}
	return out
}
