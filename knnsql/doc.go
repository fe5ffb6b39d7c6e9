// Package knnsql exposes fitted classifiers to SQLite.
//
// Register installs the knn virtual table module and the knn_predict scalar
// function; RegisterModel publishes a classifier under a name both can refer
// to:
//
//	knnsql.RegisterModel("clusters", clf)
//	CREATE VIRTUAL TABLE nn USING knn(model=clusters);
//	SELECT point, label, distance FROM nn WHERE query MATCH '[300,350]';
//	SELECT knn_predict('clusters', '300,350');
package knnsql
