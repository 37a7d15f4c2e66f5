// Package updater implements the background updater: a single-consumer
// FIFO queue that batches incoming work behind a debounce timer and hands
// each batch to a caller-supplied processor on a dedicated worker.
package updater
