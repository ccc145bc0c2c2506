package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDependencies(t *testing.T) {
	t.Run("should drop blanks, sort and deduplicate", func(t *testing.T) {
		records := ExtractDependencies([]string{"", "pkg:npm/b@1", "pkg:npm/a@1", "pkg:npm/a@1"})
		assert.Len(t, records, 2)
		assert.Equal(t, "a", records[0].PackageName)
		assert.Equal(t, "b", records[1].PackageName)
	})

	t.Run("should silently skip identifiers which cannot be parsed", func(t *testing.T) {
		records := ExtractDependencies([]string{"invalid-purl", "pkg:npm/express"})
		assert.Equal(t, []DependencyRecord{{
			Ecosystem:        "npm",
			PackageName:      "express",
			Requirement:      "*",
			SourceIdentifier: "pkg:npm/express",
		}}, records)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		artifacts := []string{"pkg:maven/org.springframework/spring-core@5.3.23", "  ", "pkg:npm/express@4.18.2", "pkg:npm/express@4.18.2", "pkg:golang/github.com/pkg/errors@v0.9.1"}
		first := ExtractDependencies(artifacts)

		again := make([]string, 0, len(first))
		for _, r := range first {
			again = append(again, r.SourceIdentifier)
		}
		assert.Equal(t, first, ExtractDependencies(again))
		assert.Equal(t, first, ExtractDependencies(artifacts))
	})

	t.Run("should return an empty set for no artifacts", func(t *testing.T) {
		assert.Empty(t, ExtractDependencies(nil))
	})
}

func TestUniqueIdentifiers(t *testing.T) {
	assert.Equal(t, []string{"pkg:npm/a@1", "pkg:npm/b@1"}, UniqueIdentifiers([]string{"pkg:npm/b@1", "", "pkg:npm/a@1", "pkg:npm/b@1"}))
}
