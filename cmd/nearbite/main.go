// Command nearbite 训练并查询马朗餐厅的就近推荐模型。
//
//	nearbite train --data data/raw/malang_restaurants_real.csv
//	nearbite recommend --place "Kota Malang" --top-k 5
//	nearbite recommend --lat -7.9666 --lon 112.6326 --max-km 3 --where 'item.rating >= 4.5'
//	nearbite places
//	nearbite info
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
