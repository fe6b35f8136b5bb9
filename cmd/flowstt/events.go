package main

import (
	"encoding/json"
	"fmt"

	"github.com/keathmilligan/flowstt/pkg/eventbus"
)

// printEvent renders one broadcast event as a single JSON line, matching
// the wire encoding the service API uses (spec §6 "Event payload encoding
// is JSON").
func printEvent(ev eventbus.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		fmt.Printf("{\"type\":%q}\n", ev.Type)
		return
	}
	fmt.Println(string(data))
}
