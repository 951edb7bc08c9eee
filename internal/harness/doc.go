// Package harness runs query scenarios against compiled circuits.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario checks"
//	circuit: ../circuits/game.cue
//	latches: true
//	steps:
//	  - op: initial
//	    expect: { state: ["(control white)", "(step 0)"] }
//	  - op: legal
//	    role: white
//	    expect: { actions: [a, b] }
//	  - op: next
//	    moves: [b, noop]
//	  - op: goal
//	    role: white
//	    expect: { goal: 100 }
//	assertions:
//	  - type: final_state
//	    state: ["(mark)"]
//	  - type: trace_count
//	    op: next
//	    count: 1
//
// The circuit path is relative to the scenario file.
//
// # Operations
//
//   - initial: the current state becomes the initial state
//   - set: the current state becomes the listed facts
//   - terminal, legal, goal: query the current state
//   - next: the current state advances under the joint move
//   - value: read a named node with the current state assigned
//
// # Cross-checking
//
// Every scenario runs on both evaluators. Their traces must be identical;
// any difference fails the scenario before expectations are checked.
//
// # Golden Traces
//
// Traces serialize to canonical JSON, so golden files are byte-stable:
//
//	go test ./internal/harness -update
package harness
