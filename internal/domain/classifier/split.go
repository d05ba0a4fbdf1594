package classifier

import (
	"math"
	"math/rand"
)

// DefaultTestRatio is the held-out fraction used by TrainTestSplit callers.
const DefaultTestRatio = 0.2

// TrainTestSplit shuffles rows with seed and holds out ceil(n*testRatio)
// of them. At least one row always stays in the training part.
func TrainTestSplit(features [][]float64, labels []int, testRatio float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	n := len(features)
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = DefaultTestRatio
	}
	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec // reproducible split
	trainX = make([][]float64, 0, n-nTest)
	trainY = make([]int, 0, n-nTest)
	testX = make([][]float64, 0, nTest)
	testY = make([]int, 0, nTest)
	for k, i := range perm {
		if k < nTest {
			testX = append(testX, features[i])
			testY = append(testY, labels[i])
			continue
		}
		trainX = append(trainX, features[i])
		trainY = append(trainY, labels[i])
	}
	return trainX, trainY, testX, testY
}
