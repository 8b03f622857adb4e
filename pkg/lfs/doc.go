// Package lfs pushes files to and fetches them from a Git LFS server which
// stores objects by their sha256, using the batch API and the basic transfer
// adapter.
//
// Create an uploader bound to a namespace:
//
//	uploader, err := lfs.New("https://giftless.example.org", schema.Namespace{Bucket: "ckan", Prefix: "my-dataset"})
//	if err != nil {
//	   panic(err)
//	}
//
// Then push a file with a token from pkg/authz:
//
//	ref, err := uploader.Push(ctx, file, token, func(fraction float64) {
//	   fmt.Printf("%.0f%%\n", fraction*100)
//	})
//
// A downloader resolves the link to a stored object, or fetches and checks
// its content:
//
//	downloader, err := lfs.NewDownloader("https://giftless.example.org")
//	action, err := downloader.Resolve(ctx, ns, schema.BatchObject{OID: ref.ContentAddress, Size: ref.SizeBytes}, token)
package lfs
