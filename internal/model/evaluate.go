package model

import (
	"fmt"
	"strings"
)

// ClassMetrics are the per-class scores of a binary classifier.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation summarizes held-out performance.
type Evaluation struct {
	Classes     [2]ClassMetrics `json:"classes"`
	Accuracy    float64         `json:"accuracy"`
	MacroAvg    ClassMetrics    `json:"macro_avg"`
	WeightedAvg ClassMetrics    `json:"weighted_avg"`
	// Confusion[i][j] counts rows of true class i predicted as j.
	Confusion [2][2]int `json:"confusion_matrix"`
}

// Evaluate scores predictions against the true labels. Undefined ratios
// (no predicted or no actual members of a class) score 0.
func Evaluate(yTrue, yPred []int) Evaluation {
	var e Evaluation
	for i := range yTrue {
		e.Confusion[yTrue[i]][yPred[i]]++
	}

	total := len(yTrue)
	correct := e.Confusion[0][0] + e.Confusion[1][1]
	if total > 0 {
		e.Accuracy = float64(correct) / float64(total)
	}

	for c := range 2 {
		tp := e.Confusion[c][c]
		predicted := e.Confusion[0][c] + e.Confusion[1][c]
		actual := e.Confusion[c][0] + e.Confusion[c][1]

		m := ClassMetrics{Support: actual}
		m.Precision = ratio(tp, predicted)
		m.Recall = ratio(tp, actual)
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		e.Classes[c] = m

		e.MacroAvg.Precision += m.Precision / 2
		e.MacroAvg.Recall += m.Recall / 2
		e.MacroAvg.F1 += m.F1 / 2
		if total > 0 {
			w := float64(actual) / float64(total)
			e.WeightedAvg.Precision += w * m.Precision
			e.WeightedAvg.Recall += w * m.Recall
			e.WeightedAvg.F1 += w * m.F1
		}
	}
	e.MacroAvg.Support = total
	e.WeightedAvg.Support = total
	return e
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// String renders the classification report and confusion matrix as plain text.
func (e Evaluation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %9s %9s %9s %9s\n\n", "", "precision", "recall", "f1-score", "support")
	for c, m := range e.Classes {
		fmt.Fprintf(&b, "%12d %9.2f %9.2f %9.2f %9d\n", c, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "%12s %9s %9s %9.2f %9d\n", "accuracy", "", "", e.Accuracy, e.MacroAvg.Support)
	fmt.Fprintf(&b, "%12s %9.2f %9.2f %9.2f %9d\n", "macro avg", e.MacroAvg.Precision, e.MacroAvg.Recall, e.MacroAvg.F1, e.MacroAvg.Support)
	fmt.Fprintf(&b, "%12s %9.2f %9.2f %9.2f %9d\n", "weighted avg", e.WeightedAvg.Precision, e.WeightedAvg.Recall, e.WeightedAvg.F1, e.WeightedAvg.Support)
	fmt.Fprintf(&b, "\nconfusion matrix:\n[[%d %d]\n [%d %d]]\n",
		e.Confusion[0][0], e.Confusion[0][1], e.Confusion[1][0], e.Confusion[1][1])
	return b.String()
}
