package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/robinvdvleuten/costbasis/output"
)

const slowOperation = 100 * time.Millisecond

// formatTimingTree writes root and its children as a tree:
//
//	replay: 125ms
//	├─ load events.jsonl: 85ms
//	└─ process: 40ms
//	   └─ spend BTC: 31ms (×120)
func formatTimingTree(w io.Writer, root *timerNode, styles *output.Styles) {
	label := root.name
	if styles != nil {
		label = styles.Keyword(label)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", label, formatNodeTiming(root, styles))

	for i, child := range root.children {
		formatNode(w, child, "", i == len(root.children)-1, styles)
	}
}

func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool, styles *output.Styles) {
	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}

	tree := prefix + branch
	if styles != nil {
		tree = styles.Dim(tree)
	}
	_, _ = fmt.Fprintf(w, "%s%s: %s\n", tree, node.name, formatNodeTiming(node, styles))

	for i, child := range node.children {
		formatNode(w, child, prefix+extension, i == len(node.children)-1, styles)
	}
}

func formatNodeTiming(node *timerNode, styles *output.Styles) string {
	timing := formatDuration(node.total)
	if node.count > 1 {
		timing = fmt.Sprintf("%s (×%d)", timing, node.count)
	}
	if styles == nil {
		return timing
	}
	return styles.Timing(timing, node.total >= slowOperation)
}

// formatDuration shows milliseconds below one second and seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
}
