package sigfoxgql

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Long is a 64 bit integer, for unix timestamps and counts that outgrow Int.
type Long int64

func (Long) ImplementsGraphQLType(name string) bool {
	return name == "Long"
}

func (a *Long) UnmarshalGraphQL(input interface{}) error {
	switch v := input.(type) {
	case int32:
		*a = Long(v)
	case int64:
		*a = Long(v)
	case int:
		*a = Long(v)
	case float64:
		if v != math.Trunc(v) {
			return fmt.Errorf("unable to parse long %v", input)
		}
		*a = Long(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("unable to parse long %v", input)
		}
		*a = Long(n)
	default:
		return fmt.Errorf("unable to parse long %v", input)
	}
	return nil
}

func (a Long) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(a))
}
