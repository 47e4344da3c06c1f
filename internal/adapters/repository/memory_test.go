package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/mvp/internal/adapters/repository"
	"github.com/okian/mvp/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore_List(t *testing.T) {
	Convey("Given a store with the default seed", t, func() {
		ctx := context.Background()
		store, err := repository.NewMemoryStore()
		So(err, ShouldBeNil)

		Convey("When listing all records", func() {
			records := store.List(ctx)

			Convey("Then exactly three records come back in insertion order", func() {
				So(records, ShouldHaveLength, 3)
				So(records[0].ID, ShouldEqual, "1")
				So(records[1].ID, ShouldEqual, "2")
				So(records[2].ID, ShouldEqual, "3")
				So(cmp.Diff(repository.DefaultRecords(), records), ShouldBeEmpty)
			})

			Convey("And mutating the result does not touch the collection", func() {
				records[0].Name = "changed"
				So(store.List(ctx)[0].Name, ShouldEqual, "Example 1")
			})
		})

		Convey("When counting", func() {
			So(store.Count(ctx), ShouldEqual, 3)
		})
	})
}

func TestMemoryStore_Get(t *testing.T) {
	Convey("Given a store with the default seed", t, func() {
		ctx := context.Background()
		store, err := repository.NewMemoryStore()
		So(err, ShouldBeNil)

		Convey("When getting id 1", func() {
			record, err := store.Get(ctx, "1")

			Convey("Then the first example is returned", func() {
				So(err, ShouldBeNil)
				So(record.Name, ShouldEqual, "Example 1")
				So(record.Description, ShouldEqual, "This is example 1")
			})
		})

		Convey("When getting an unknown id", func() {
			record, err := store.Get(ctx, "999")

			Convey("Then a not-found error is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "Example with ID 999 not found")
				So(record, ShouldResemble, model.Record{})
			})
		})

		Convey("When getting an empty id", func() {
			_, err := store.Get(ctx, "")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemoryStore_Seed(t *testing.T) {
	Convey("Given a custom seed", t, func() {
		ctx := context.Background()

		Convey("When ids repeat", func() {
			_, err := repository.NewMemoryStore(repository.WithRecords(
				model.Record{ID: "a", Name: "first"},
				model.Record{ID: "a", Name: "second"},
			))

			Convey("Then construction fails", func() {
				So(errors.Is(err, repository.ErrDuplicateID), ShouldBeTrue)
			})
		})

		Convey("When the seed is empty", func() {
			store, err := repository.NewMemoryStore(repository.WithRecords())

			Convey("Then the store is valid and empty", func() {
				So(err, ShouldBeNil)
				So(store.List(ctx), ShouldBeEmpty)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})
	})
}

func TestMemoryStore_ConcurrentReads(t *testing.T) {
	Convey("Given a shared store", t, func() {
		ctx := context.Background()
		store, err := repository.NewMemoryStore()
		So(err, ShouldBeNil)

		Convey("When many goroutines read at once", func() {
			var wg sync.WaitGroup
			failures := make(chan string, 100)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if len(store.List(ctx)) != 3 {
						failures <- "list"
					}
					if r, err := store.Get(ctx, "3"); err != nil || r.Name != "Example 3" {
						failures <- "get"
					}
				}()
			}
			wg.Wait()
			close(failures)

			Convey("Then every read sees the same data", func() {
				So(len(failures), ShouldEqual, 0)
			})
		})
	})
}
