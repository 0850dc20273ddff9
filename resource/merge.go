package resource

// Merge folds the resolved sources left to right into a single
// resource. When the accumulated value and the incoming value at a key
// are both mappings they merge recursively, incoming keys winning at
// matching depth and non conflicting keys surviving; otherwise the
// incoming value replaces the accumulated one wholesale.
//
// The result is a fresh structure holding no references into the
// inputs, so a later mutation of a cached source cannot alter an
// already delivered merge.
func Merge(sources ...Resource) Resource {
	merged := make(Resource, mergeSizeHint(sources))
	for _, src := range sources {
		mergeInto(merged, src)
	}
	return merged
}

func mergeSizeHint(sources []Resource) int {
	size := 0
	for _, src := range sources {
		if len(src) > size {
			size = len(src)
		}
	}
	return size
}

func mergeInto(dst map[string]any, src map[string]any) {
	for key, incoming := range src {
		if existing, ok := dst[key]; ok {
			// dst only ever holds values produced by copyValue, so a
			// nested mapping here is a plain map safe to mutate.
			existingMap, existingOK := existing.(map[string]any)
			incomingMap, incomingOK := asMap(incoming)
			if existingOK && incomingOK {
				mergeInto(existingMap, incomingMap)
				continue
			}
		}
		dst[key] = copyValue(incoming)
	}
}

func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case Resource:
		return v, true
	default:
		return nil, false
	}
}
