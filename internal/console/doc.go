// Package console runs the interactive classification loop of the knn
// command: it reads integer coordinates, checks them against the plane
// bounds, flips the y axis into classifier space and prints the predicted
// cluster whenever it changes.
package console
