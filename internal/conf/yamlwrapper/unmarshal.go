// Package yamlwrapper contains a YAML unmarshaler.
package yamlwrapper

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/bluenviron/avplay/internal/conf/jsonwrapper"
)

// differences with respect to the standard package:
// - the document is converted into JSON, therefore json tags and
//   json.Unmarshaler implementations are used
// - all differences of jsonwrapper are inherited

func convertKeys(i any) (any, error) {
	switch x := i.(type) {
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("integer keys are not supported (%v)", k)
			}

			var err error
			out[ks], err = convertKeys(v)
			if err != nil {
				return nil, err
			}
		}
		return out, nil

	case []any:
		out := make([]any, len(x))
		for k, v := range x {
			var err error
			out[k], err = convertKeys(v)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	return i, nil
}

// Unmarshal loads the configuration from YAML.
func Unmarshal(buf []byte, dest any) error {
	var temp any
	err := yaml.Unmarshal(buf, &temp)
	if err != nil {
		return err
	}

	// an empty document is equivalent to an empty map
	if temp == nil {
		temp = map[any]any{}
	}

	temp, err = convertKeys(temp)
	if err != nil {
		return err
	}

	buf, err = json.Marshal(temp)
	if err != nil {
		return err
	}

	return jsonwrapper.Unmarshal(buf, dest)
}
