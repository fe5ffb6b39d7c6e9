// Package classifier implements a k-nearest-neighbor classifier over
// fixed-dimension numeric feature vectors.
//
// A Classifier is configured with k, fitted once with parallel slices of
// vectors and labels, and then queried point by point or in batch:
//
//	knn, _ := classifier.New[int](3)
//	_ = knn.Fit(vectors, labels)
//	label, err := knn.PredictOne([]float64{120, 170})
//
// Neighbor selection is by Euclidean distance with ties broken by insertion
// order; the vote picks the most frequent label, and on equal counts the
// label that first occurs among the selected neighbors.
package classifier
