package example

// NewPair 泛型构造，类型参数原样进入生成的声明
//
// @AutoFields(new=`makePair`)
func NewPair[K comparable, V any](
	key K, // @Field
	value V, // @Field
) Pair[K, V] {
	return makePair(key, value)
}
