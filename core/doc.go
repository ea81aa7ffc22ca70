// Package core defines the shared conversational data model: role-based
// messages composed of a closed set of content blocks (text, tool use,
// tool result) plus the product records used for grounding context.
package core
