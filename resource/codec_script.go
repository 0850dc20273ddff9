package resource

import (
	"fmt"

	"github.com/dop251/goja"
)

// ScriptFormat is the file extension handled by the experimental
// script codec. It is not registered by default; sources in this
// format are rejected at configuration validation unless the
// experimental gate is enabled.
const ScriptFormat = "js"

// EnableScriptFormat registers the script codec. The source is run in
// a fresh javascript runtime and the resource object is read from
// module.exports, falling back to the script's completion value.
func EnableScriptFormat() {
	RegisterCodec(ScriptFormat, unmarshalScript)
}

func unmarshalScript(data []byte, v any) error {
	vm := goja.New()

	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return err
	}
	if err := vm.Set("module", module); err != nil {
		return err
	}
	if err := vm.Set("exports", exports); err != nil {
		return err
	}

	completion, err := vm.RunString(string(data))
	if err != nil {
		return fmt.Errorf("evaluating script source: %w", err)
	}

	exported := module.Get("exports").Export()
	if m, ok := exported.(map[string]any); !ok || len(m) == 0 {
		if completion != nil && !goja.IsUndefined(completion) && !goja.IsNull(completion) {
			exported = completion.Export()
		}
	}

	holder, ok := v.(*any)
	if !ok {
		return fmt.Errorf("script codec requires an *any holder, got %T", v)
	}
	*holder = exported

	return nil
}
