/*
 * Copyright (c) 2022, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	msgparse "github.com/dillonhicks/msgparse/api"
	"github.com/google/uuid"
)

/*
 * This tests aggressive message spamming from many clients at once. Each
 * message mentions a completely new and unique name, which the server must
 * echo back.
 */

func main() {
	host := "unix:///tmp/msgparse.sock"
	if len(os.Args) > 1 {
		host = os.Args[1]
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.NewString()
			client, err := msgparse.NewClientPool(host, 10, nil)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			for i := 0; i < 1000; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					name := fmt.Sprintf("u%s%d", id[:8], i)
					r, err := client.Parse(context.Background(), fmt.Sprintf("@%s (spam) some garbage", name))
					if err != nil || len(r.Mentions) != 1 || r.Mentions[0] != name {
						fmt.Fprintln(os.Stderr, "unexpected response", r, err)
						os.Exit(1)
					}
				}(i)
			}
		}()
	}

	wg.Wait()
}
