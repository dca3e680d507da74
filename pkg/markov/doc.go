/*
Package markov estimates first-order transition probabilities between
adjacent alphabet symbols and uses them to score k-mers.

An Estimator counts ordered symbol pairs across any number of sequences and
derives a Table of conditional probabilities, count(pair)/total(first symbol),
with no smoothing. Alongside the counts it keeps a run-length Histogram of
uninterrupted valid spans. Score multiplies the table's probabilities over
the adjacent pairs of a k-mer.

Tables can come from an estimate, from an external wide CSV (LoadTables),
or from a SQLite-backed Store that persists estimated and imported tables
under their identifiers. Tables and Store satisfy TableSource.
*/
package markov
