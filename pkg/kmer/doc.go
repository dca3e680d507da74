/*
Package kmer implements the k-mer space engine: a fixed symbol alphabet, a
gap-aware scanner over symbol sequences, deduplicated k-mer extraction,
lazy exhaustive enumeration of every k-mer over an alphabet, and the
streaming set difference that yields nullomers (k-mers that are possible but
never observed).

Extracted sets always serialize in ascending byte order, one k-mer per line.
The exhaustive generator walks the alphabet's symbols in code-point order, so
its output is ascending as well and can be diffed against an observed set
without ever holding the full space in memory.
*/
package kmer
