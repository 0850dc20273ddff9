package resource_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/lingua/resource"
)

// MergeTestSuite exercises the ordered deep override merge.
type MergeTestSuite struct {
	suite.Suite
}

func TestMergeSuite(t *testing.T) {
	suite.Run(t, &MergeTestSuite{})
}

func (s *MergeTestSuite) TestMerge() {
	testCases := []struct {
		name     string
		sources  []resource.Resource
		expected resource.Resource
	}{
		{
			name:     "no sources",
			sources:  nil,
			expected: resource.Resource{},
		},
		{
			name: "single source unchanged",
			sources: []resource.Resource{
				{"a": "1", "b": "2"},
			},
			expected: resource.Resource{"a": "1", "b": "2"},
		},
		{
			name: "regional variant overrides base",
			sources: []resource.Resource{
				{"a": "1", "b": "2"},
				{"b": "2-ar"},
			},
			expected: resource.Resource{"a": "1", "b": "2-ar"},
		},
		{
			name: "nested override preserves siblings",
			sources: []resource.Resource{
				{"nav": map[string]any{"home": "Inicio", "about": "Acerca"}},
				{"nav": map[string]any{"home": "Inicio (AR)"}},
			},
			expected: resource.Resource{
				"nav": map[string]any{"home": "Inicio (AR)", "about": "Acerca"},
			},
		},
		{
			name: "mapping replaced wholesale by scalar",
			sources: []resource.Resource{
				{"nav": map[string]any{"home": "Home"}},
				{"nav": "disabled"},
			},
			expected: resource.Resource{"nav": "disabled"},
		},
		{
			name: "scalar replaced wholesale by mapping",
			sources: []resource.Resource{
				{"nav": "disabled"},
				{"nav": map[string]any{"home": "Home"}},
			},
			expected: resource.Resource{"nav": map[string]any{"home": "Home"}},
		},
		{
			name: "three sources fold left to right",
			sources: []resource.Resource{
				{"a": "base", "b": "base", "c": "base"},
				{"b": "mid"},
				{"b": "top", "c": "top"},
			},
			expected: resource.Resource{"a": "base", "b": "top", "c": "top"},
		},
		{
			name: "deeply nested override",
			sources: []resource.Resource{
				{"errors": map[string]any{"http": map[string]any{"404": "Not found", "500": "Server error"}}},
				{"errors": map[string]any{"http": map[string]any{"404": "Nothing here"}}},
			},
			expected: resource.Resource{
				"errors": map[string]any{
					"http": map[string]any{"404": "Nothing here", "500": "Server error"},
				},
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			merged := resource.Merge(tc.sources...)
			s.Require().Equal(tc.expected, merged, "merged resource should match expected")
		})
	}
}

func (s *MergeTestSuite) TestMergeIsDeterministic() {
	base := resource.Resource{"a": "1", "nav": map[string]any{"home": "Home", "about": "About"}}
	variant := resource.Resource{"nav": map[string]any{"home": "Start"}}
	extra := resource.Resource{"a": "override"}

	first := resource.Merge(base, variant, extra)
	for range 10 {
		s.Require().Equal(first, resource.Merge(base, variant, extra),
			"merge of the same ordered sources should always yield the same result")
	}
}

func (s *MergeTestSuite) TestMergeDetachesFromInputs() {
	base := resource.Resource{"nav": map[string]any{"home": "Home"}, "items": []any{"a", "b"}}
	variant := resource.Resource{"nav": map[string]any{"about": "About"}}

	merged := resource.Merge(base, variant)

	// Mutating the inputs after the fact must not leak into the
	// delivered result.
	base["nav"].(map[string]any)["home"] = "corrupted"
	base["items"].([]any)[0] = "corrupted"
	variant["nav"].(map[string]any)["about"] = "corrupted"

	s.Require().Equal("Home", merged["nav"].(map[string]any)["home"])
	s.Require().Equal("About", merged["nav"].(map[string]any)["about"])
	s.Require().Equal("a", merged["items"].([]any)[0])
}
