package models_test

import (
	"testing"

	"github.com/riskdocs/riskdocs/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestFingerprintNormalizesWhitespaceAndCase(t *testing.T) {
	a := models.Fingerprint("Fall from height")
	b := models.Fingerprint("  fall   FROM\theight ")
	assert.Equal(t, a, b)

	c := models.Fingerprint("Fall from ladder")
	assert.NotEqual(t, a, c)
}

func TestFingerprintIsStableHexDigest(t *testing.T) {
	fp := models.Fingerprint("No horn sounded")
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, models.Fingerprint("No horn sounded"))
}
