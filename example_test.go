package gencache_test

import (
	"fmt"

	"github.com/Keksclan/gencache"
)

func Example() {
	c, err := gencache.New[string, int](2,
		gencache.WithOnEviction(func(k string, v int) {
			fmt.Printf("evicted %s=%d\n", k, v)
		}),
	)
	if err != nil {
		panic(err)
	}

	c.Set("a", 1)
	c.Set("b", 2) // fills the active generation
	c.Set("c", 3)

	v, _ := c.Get("b") // promotes b, rotating a out
	fmt.Println("b =", v)
	fmt.Println(c)

	// Output:
	// evicted a=1
	// b = 2
	// gencache.Cache(2/2)
}

func ExampleCache_Resize() {
	c, _ := gencache.New[string, int](4,
		gencache.WithOnEviction(func(k string, _ int) {
			fmt.Println("evicted", k)
		}),
	)
	for i, k := range []string{"a", "b", "c"} {
		c.Set(k, i)
	}

	if err := c.Resize(1); err != nil {
		panic(err)
	}
	for k := range c.Keys() {
		fmt.Println("kept", k)
	}

	// Output:
	// evicted a
	// evicted b
	// kept c
}
