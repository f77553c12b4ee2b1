// Package retention prunes evidence records by age and by count.
//
// Pruning runs on demand, typically from "courier evidence prune":
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    RetentionDays: 30,
//	    MaxRecords:    10000,
//	})
//	deleted, err := pruner.Prune(ctx)
//
// Age pruning deletes records whose request time is at or before the
// cutoff. Count pruning then deletes the oldest records until MaxRecords
// remain. With ArchiveBeforeDelete set, the records about to be deleted are
// first written to ArchivePath as a JSON array.
package retention
