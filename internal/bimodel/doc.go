// Package bimodel builds star schema artifacts from analysis tables:
// surrogate-keyed dimensions, a calendar dimension, and the data
// dictionary that documents every exported table.
package bimodel
