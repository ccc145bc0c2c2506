package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const debianBookworm = `PRETTY_NAME="Debian GNU/Linux 12 (bookworm)"
NAME="Debian GNU/Linux"
VERSION_ID="12"
VERSION="12 (bookworm)"
VERSION_CODENAME=bookworm
ID=debian
HOME_URL="https://www.debian.org/"
SUPPORT_URL="https://www.debian.org/support"
BUG_REPORT_URL="https://bugs.debian.org/"
`

func TestParseOSRelease(t *testing.T) {
	t.Run("should map the allow-listed keys and strip quotes", func(t *testing.T) {
		o := ParseOSRelease(debianBookworm)
		assert.Equal(t, "Debian GNU/Linux 12 (bookworm)", o.PrettyName)
		assert.Equal(t, "Debian GNU/Linux", o.Name)
		assert.Equal(t, "12", o.VersionID)
		assert.Equal(t, "bookworm", o.VersionCodename)
		assert.Equal(t, "debian", o.ID)
		assert.Equal(t, "https://bugs.debian.org/", o.BugReportURL)
		assert.True(t, o.Valid())
	})

	t.Run("should skip comments, blank lines and unknown keys", func(t *testing.T) {
		o := ParseOSRelease("# a comment\n\nFOO=bar\nID='alpine'\nID_LIKE=\"rhel centos fedora\"\n")
		assert.Equal(t, OSRelease{ID: "alpine", IDLike: "rhel centos fedora"}, o)
		assert.False(t, o.Valid())
	})

	t.Run("should keep quotes which do not match", func(t *testing.T) {
		o := ParseOSRelease(`PRETTY_NAME="Some 'distro'` + "\n")
		assert.Equal(t, `"Some 'distro'`, o.PrettyName)
	})

	t.Run("should ignore lines without a value", func(t *testing.T) {
		o := ParseOSRelease("VARIANT_ID=\nPRETTY_NAME=Arch Linux\n")
		assert.Equal(t, "", o.VariantID)
		assert.Equal(t, "Arch Linux", o.PrettyName)
	})
}

func TestLooksLikeOSRelease(t *testing.T) {
	assert.True(t, LooksLikeOSRelease(debianBookworm))
	assert.False(t, LooksLikeOSRelease("  \n"))
	assert.False(t, LooksLikeOSRelease("# os-release\nThis repository contains descriptors"))
}
