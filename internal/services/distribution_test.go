package services

import (
	"errors"
	"reflect"
	"testing"
)

func TestDistributeFillsInOrder(t *testing.T) {
	candidates := []Candidate{
		{AllocationID: "a1", Available: 600},
		{AllocationID: "a2", Available: 600},
	}
	assignments, err := Distribute(900, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []Assignment{
		{AllocationID: "a1", Amount: 600},
		{AllocationID: "a2", Amount: 300},
	}
	if !reflect.DeepEqual(assignments, expected) {
		t.Fatalf("unexpected assignments: %#v", assignments)
	}
}

func TestDistributeStopsWhenSatisfied(t *testing.T) {
	candidates := []Candidate{
		{AllocationID: "a1", Available: 1000},
		{AllocationID: "a2", Available: 1000},
	}
	assignments, err := Distribute(400, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments) != 1 || assignments[0].AllocationID != "a1" || assignments[0].Amount != 400 {
		t.Fatalf("unexpected assignments: %#v", assignments)
	}
}

func TestDistributeSkipsDepletedCandidates(t *testing.T) {
	candidates := []Candidate{
		{AllocationID: "a1", Available: 0},
		{AllocationID: "a2", Available: -50},
		{AllocationID: "a3", Available: 200},
	}
	assignments, err := Distribute(150, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments) != 1 || assignments[0].AllocationID != "a3" || assignments[0].Amount != 150 {
		t.Fatalf("unexpected assignments: %#v", assignments)
	}
}

func TestDistributeRemainderOnLastAssigned(t *testing.T) {
	candidates := []Candidate{
		{AllocationID: "a1", Available: 100},
		{AllocationID: "a2", Available: 50},
	}
	assignments, err := Distribute(500, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []Assignment{
		{AllocationID: "a1", Amount: 100},
		{AllocationID: "a2", Amount: 400, Overdraft: true},
	}
	if !reflect.DeepEqual(assignments, expected) {
		t.Fatalf("unexpected assignments: %#v", assignments)
	}
}

func TestDistributeRemainderOnFirstWhenNoneAssigned(t *testing.T) {
	candidates := []Candidate{
		{AllocationID: "a1", Available: 0},
		{AllocationID: "a2", Available: -10},
	}
	assignments, err := Distribute(300, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []Assignment{
		{AllocationID: "a1", Amount: 300, Overdraft: true},
	}
	if !reflect.DeepEqual(assignments, expected) {
		t.Fatalf("unexpected assignments: %#v", assignments)
	}
}

func TestDistributeNoCandidates(t *testing.T) {
	_, err := Distribute(100, nil)
	if !errors.Is(err, ErrNoAllocationAvailable) {
		t.Fatalf("expected ErrNoAllocationAvailable, got %v", err)
	}
}

func TestDistributeNegativeAmount(t *testing.T) {
	_, err := Distribute(-1, []Candidate{{AllocationID: "a1", Available: 100}})
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestDistributeZeroAmountMarker(t *testing.T) {
	assignments, err := Distribute(0, []Candidate{{AllocationID: "a1", Available: 600}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments) != 1 || assignments[0].AllocationID != "a1" || assignments[0].Amount != 0 {
		t.Fatalf("unexpected assignments: %#v", assignments)
	}
}

func TestDistributeZeroAmountManyCandidates(t *testing.T) {
	assignments, err := Distribute(0, []Candidate{
		{AllocationID: "a1", Available: 600},
		{AllocationID: "a2", Available: 600},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments) != 0 {
		t.Fatalf("expected no assignments, got %#v", assignments)
	}
}

func TestDistributeSumsToAmount(t *testing.T) {
	candidates := []Candidate{
		{AllocationID: "a1", Available: 137},
		{AllocationID: "a2", Available: 0},
		{AllocationID: "a3", Available: 263},
		{AllocationID: "a4", Available: 12},
	}
	for _, amount := range []int64{1, 137, 138, 400, 412, 9999} {
		assignments, err := Distribute(amount, candidates)
		if err != nil {
			t.Fatalf("amount %d: unexpected error: %v", amount, err)
		}
		var sum int64
		for _, asg := range assignments {
			sum += asg.Amount
		}
		if sum != amount {
			t.Fatalf("amount %d: assignments sum to %d", amount, sum)
		}
	}
}

func TestDistributeDeterministic(t *testing.T) {
	candidates := []Candidate{
		{AllocationID: "a1", Available: 250},
		{AllocationID: "a2", Available: 250},
		{AllocationID: "a3", Available: 250},
	}
	first, err := Distribute(700, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Distribute(700, candidates)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %#v vs %#v", i, first, again)
		}
	}
}
