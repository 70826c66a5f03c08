package utils

import (
	"context"
	"sync"
	"testing"

	"go.viam.com/test"
)

func TestGroupWorkParallel(t *testing.T) {
	for _, size := range []int{0, 1, 3, 100, 1001} {
		counts := make([]int, size)
		members := make([]int, size)
		var mu sync.Mutex
		var groupSizes int

		err := GroupWorkParallel(context.Background(), size, func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
					counts[workNum]++
					members[workNum] = from + memberNum
				}, func() {
					mu.Lock()
					groupSizes += groupSize
					mu.Unlock()
				}
		})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, groupSizes, test.ShouldEqual, size)
		for workNum, c := range counts {
			test.That(t, c, test.ShouldEqual, 1)
			test.That(t, members[workNum], test.ShouldEqual, workNum)
		}
	}
}

func TestGroupWorkParallelCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worked := false
	err := GroupWorkParallel(ctx, 10, func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
		return func(memberNum, workNum int) { worked = true }, nil
	})
	test.That(t, err, test.ShouldBeError, context.Canceled)
	test.That(t, worked, test.ShouldBeFalse)
}
