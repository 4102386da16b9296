package statiming

import (
	"fmt"
	"strings"

	"github.com/tauphase/statiming/split"
)

// ReportSummary returns a plain-text TNS/WNS-per-split/transition and
// node/edge/test count dump, a diagnostic report without a report-file
// global to manage.
func (t *Timer) ReportSummary() (string, error) {
	if err := t.ensureUpdated(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "nodes=%d edges=%d jumps=%d tests=%d\n",
		t.g.Nodes.Len(), t.g.Edges.Len(), t.g.Jumps.Len(), len(t.eng.Tests()))

	split.ForEach(func(el split.Split, rf split.Trans) {
		fmt.Fprintf(&b, "%-5s %-4s  tns=%+.4f  wns=%+.4f\n",
			el, rf, t.eng.TNS(el, rf), t.eng.WNS(el, rf))
	})
	return b.String(), nil
}
