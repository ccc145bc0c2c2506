package normalize

import (
	"testing"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagePurl(t *testing.T) {
	assert.Equal(t, "pkg:docker/library/redis@7.2", ImagePurl("library/redis", "7.2"))
	assert.Equal(t, "pkg:docker/redis@latest", ImagePurl("redis", "latest"))
}

func TestDependenciesToCycloneDX(t *testing.T) {
	deps := ExtractDependencies([]string{"pkg:npm/express@4.18.2", "pkg:npm/lodash", "pkg:npm/express@4.18.2"})
	bom := DependenciesToCycloneDX("library/node", "20", "1.0.1", time.Unix(0, 0), deps)

	require.NotNil(t, bom.Metadata)
	assert.Equal(t, "pkg:docker/library/node@20", bom.Metadata.Component.BOMRef)
	assert.Equal(t, cdx.ComponentTypeContainer, bom.Metadata.Component.Type)

	t.Run("should contain one component per record", func(t *testing.T) {
		require.Len(t, *bom.Components, 2)
		assert.Equal(t, "express", (*bom.Components)[0].Name)
		assert.Equal(t, "4.18.2", (*bom.Components)[0].Version)
		assert.Equal(t, "", (*bom.Components)[1].Version)
	})

	t.Run("root should depend on every component", func(t *testing.T) {
		require.Len(t, *bom.Dependencies, 1)
		assert.ElementsMatch(t, []string{"pkg:npm/express@4.18.2", "pkg:npm/lodash"}, *(*bom.Dependencies)[0].Dependencies)
	})
}
