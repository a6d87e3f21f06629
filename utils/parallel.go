// Package utils contains the worker pool used to evaluate residual blocks concurrently.
package utils

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

type (
	// BeforeParallelGroupWorkFunc executes before any work starts with the calculated number of groups.
	BeforeParallelGroupWorkFunc func(numGroups int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int) error
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupSizes splits totalSize work items into at most ParallelFactor contiguous groups. The last
// group takes the remainder.
func GroupSizes(totalSize int) (numGroups, groupSize, extra int) {
	if totalSize <= 0 {
		return 0, 0, 0
	}
	numGroups = ParallelFactor
	if totalSize < numGroups {
		numGroups = totalSize
	}
	return numGroups, totalSize / numGroups, totalSize % numGroups
}

// GroupWorkParallel parallelizes the given size of work over multiple workers. A group stops at
// its first member error or when ctx is done; the errors of all groups are combined. A panicking
// member fails its group instead of the process.
func GroupWorkParallel(ctx context.Context, totalSize int, before BeforeParallelGroupWorkFunc, groupWork GroupWorkFunc) error {
	numGroups, groupSize, extra := GroupSizes(totalSize)
	if before != nil {
		before(numGroups)
	}
	if numGroups == 0 {
		return ctx.Err()
	}

	var (
		wait   sync.WaitGroup
		errMu  sync.Mutex
		allErr error
	)
	storeError := func(err error) {
		errMu.Lock()
		defer errMu.Unlock()
		allErr = multierr.Combine(allErr, err)
	}

	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		thisGroupSize := groupSize
		thisExtra := 0
		if groupNum == numGroups-1 {
			thisExtra = extra
			thisGroupSize += thisExtra
		}
		from := groupSize * groupNum
		to := groupSize*(groupNum+1) + thisExtra

		// wait.Done runs at the end of the group or, after a panic, in the callback
		utils.PanicCapturingGoWithCallback(func() {
			runGroup(ctx, groupWork, groupNum, thisGroupSize, from, to, storeError)
			wait.Done()
		}, func(err interface{}) {
			storeError(errors.Errorf("panic in work group %d: %v", groupNum, err))
			wait.Done()
		})
	}
	wait.Wait()
	return allErr
}

func runGroup(
	ctx context.Context,
	groupWork GroupWorkFunc,
	groupNum, groupSize, from, to int,
	storeError func(error),
) {
	memberWork, groupWorkDone := groupWork(groupNum, groupSize, from, to)
	if memberWork != nil {
		memberNum := 0
		for workNum := from; workNum < to; workNum++ {
			if err := ctx.Err(); err != nil {
				storeError(err)
				return
			}
			if err := memberWork(memberNum, workNum); err != nil {
				storeError(err)
				return
			}
			memberNum++
		}
	}
	if groupWorkDone != nil {
		groupWorkDone()
	}
}
