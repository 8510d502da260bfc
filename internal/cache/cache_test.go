package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryCache 测试内存缓存的基本功能
func TestMemoryCache(t *testing.T) {
	cache, err := NewMemoryCache(Config{
		Type:            "memory",
		DefaultTTL:      time.Second * 2,
		CleanupInterval: time.Second,
	})
	require.NoError(t, err)

	// 测试Set和Get
	require.NoError(t, cache.Set("key1", "value1", 0))
	val, found, err := cache.Get("key1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value1", val)

	// 测试不存在的键
	val, found, err = cache.Get("non-existent")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	// 测试过期
	require.NoError(t, cache.Set("expire-soon", "temp-value", 100*time.Millisecond))
	time.Sleep(200 * time.Millisecond)
	_, found, _ = cache.Get("expire-soon")
	assert.False(t, found)

	// 测试删除
	require.NoError(t, cache.Set("to-delete", "delete-me", 0))
	require.NoError(t, cache.Delete("to-delete"))
	_, found, _ = cache.Get("to-delete")
	assert.False(t, found)

	// 测试清空
	require.NoError(t, cache.Set("key2", "value2", 0))
	require.NoError(t, cache.Clear())
	_, found, _ = cache.Get("key2")
	assert.False(t, found)
	assert.Equal(t, 0, cache.(*MemoryCache).Len())
}

// TestRedisCache 使用miniredis测试Redis缓存
func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cache, err := NewCache(Config{
		Type:      "redis",
		RedisAddr: mr.Addr(),
		KeyPrefix: "test:",
	})
	require.NoError(t, err)
	defer cache.(*RedisCache).Close()

	require.NoError(t, cache.Set("lesson:1", "cached", 0))
	val, found, err := cache.Get("lesson:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cached", val)

	// 键带有前缀
	raw, err := mr.Get("test:lesson:1")
	require.NoError(t, err)
	assert.Equal(t, "cached", raw)

	// 测试过期
	require.NoError(t, cache.Set("lesson:2", "short", time.Second))
	mr.FastForward(2 * time.Second)
	_, found, err = cache.Get("lesson:2")
	require.NoError(t, err)
	assert.False(t, found)

	// Clear 只删除带前缀的键
	require.NoError(t, mr.Set("other:key", "keep"))
	require.NoError(t, cache.Set("lesson:3", "drop", 0))
	require.NoError(t, cache.Clear())

	_, found, _ = cache.Get("lesson:3")
	assert.False(t, found)
	assert.True(t, mr.Exists("other:key"))

	require.NoError(t, cache.Delete("lesson:1"))
	_, found, _ = cache.Get("lesson:1")
	assert.False(t, found)
}

func TestRedisCacheUnavailable(t *testing.T) {
	_, err := NewRedisCache(Config{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}

// TestCacheFactory 测试缓存工厂函数
func TestCacheFactory(t *testing.T) {
	memCache, err := NewCache(DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, memCache)

	emptyType, err := NewCache(Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, emptyType)

	_, err = NewCache(Config{Type: "memcached"})
	assert.Error(t, err)
}

func TestJSONHelpers(t *testing.T) {
	cache, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)

	type lesson struct {
		ID     string   `json:"id"`
		Slides []string `json:"slides"`
	}

	in := lesson{ID: "l-1", Slides: []string{"one", "two"}}
	require.NoError(t, SetJSON(cache, LessonKey(in.ID), in, 0))

	var out lesson
	found, err := GetJSON(cache, LessonKey(in.ID), &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	// 损坏的缓存内容视为未命中并被删除
	require.NoError(t, cache.Set(LessonKey("broken"), "{not json", 0))
	found, err = GetJSON(cache, LessonKey("broken"), &out)
	require.NoError(t, err)
	assert.False(t, found)
	_, exists, _ := cache.Get(LessonKey("broken"))
	assert.False(t, exists)

	found, err = GetJSON(cache, LessonKey("missing"), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

// TestGenerateCacheKey 测试缓存键生成
func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "prefix", GenerateCacheKey("prefix"))
	assert.Equal(t, "prefix:part1", GenerateCacheKey("prefix", "part1"))
	assert.Equal(t, "prefix:part1:part2:part3", GenerateCacheKey("prefix", "part1", "part2", "part3"))
	assert.Equal(t, "lesson:abc", LessonKey("abc"))
	assert.Equal(t, "attempts:abc", AttemptsKey("abc"))
}
