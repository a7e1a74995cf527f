package zilliqa

import "encoding/json"

// Value is a Scilla ADT as returned in contract state, e.g. Bool is {"constructor":"True","argtypes":[],"arguments":[]}.
type Value struct {
	ArgTypes    interface{} `json:"argtypes,omitempty"`
	Arguments   []*Value    `json:"arguments,omitempty"`
	Constructor string      `json:"constructor,omitempty"`
}

func ParseValue(raw json.RawMessage) (Value, error) {
	var v Value
	err := json.Unmarshal(raw, &v)

	return v, err
}

func (v Value) Bool() bool {
	return v.Constructor == "True"
}
