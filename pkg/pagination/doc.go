// Package pagination provides lazy cursor iteration over paginated
// BattleMetrics collections.
//
// The API paginates with opaque links.next URLs, so pages form a forward-only
// chain: each page is fetched on demand and the iterator cannot be restarted
// or parallelized. A Pager decodes resources into typed values as pages
// arrive.
//
// Example usage:
//
//	pager := bm.ListServers(&client.ServerFilter{Game: "rust"})
//	for pager.HasNext() {
//		page, err := pager.NextPage(ctx)
//		if errors.Is(err, pagination.ErrNoMorePages) {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		// process page
//	}
package pagination
