package paiements

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewReference generates the merchant reference: unique per attempt,
// timestamp plus random suffix. The gateway echoes it back in webhooks
// through the metadata field.
func NewReference(now time.Time) string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		// horloge seule en dernier recours
		return fmt.Sprintf("ACP-%d", now.UnixNano())
	}
	return fmt.Sprintf("ACP-%d-%s", now.UnixMilli(), hex.EncodeToString(b))
}
