package cache

import (
	"sync"
	"time"
)

// ============================================================================
// CACHE SERVICE - IN-MEMORY CACHING CON TTL
// ============================================================================
// Implementación de caché thread-safe con expiración automática.
// Optimizado para las consultas frecuentes del API: listado de estaciones,
// resultados de búsqueda y estados de tren.
//
// Uso:
//   cache := NewCache(5*time.Minute, 10*time.Minute)
//   cache.Set("station:12", station)
//   if data, found := cache.Get("station:12"); found {
//       return data
//   }

// CacheItem representa un elemento en caché con timestamp de expiración
type CacheItem struct {
	Value      interface{}
	Expiration int64 // Unix timestamp
}

// Cache es un almacén thread-safe de key-value con TTL
type Cache struct {
	items             map[string]CacheItem
	mu                sync.RWMutex
	defaultExpiration time.Duration
	cleanupInterval   time.Duration
	stopCleanup       chan bool
}

// NewCache crea una nueva instancia de caché con TTL por defecto
// cleanupInterval ejecuta limpieza periódica de items expirados
func NewCache(defaultExpiration, cleanupInterval time.Duration) *Cache {
	cache := &Cache{
		items:             make(map[string]CacheItem),
		defaultExpiration: defaultExpiration,
		cleanupInterval:   cleanupInterval,
		stopCleanup:       make(chan bool),
	}

	go cache.startCleanupTimer()

	return cache
}

// Set almacena un valor con la expiración por defecto
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultExpiration)
}

// SetWithTTL almacena un valor con una duración de expiración específica
func (c *Cache) SetWithTTL(key string, value interface{}, duration time.Duration) {
	var expiration int64

	if duration > 0 {
		expiration = time.Now().Add(duration).UnixNano()
	}

	c.mu.Lock()
	c.items[key] = CacheItem{
		Value:      value,
		Expiration: expiration,
	}
	c.mu.Unlock()
}

// Get recupera un valor del caché
// Retorna (valor, true) si existe y no ha expirado
// Retorna (nil, false) si no existe o ha expirado
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		return nil, false
	}

	if item.Expiration > 0 && time.Now().UnixNano() > item.Expiration {
		c.Delete(key)
		return nil, false
	}

	return item.Value, true
}

// Delete elimina un key del caché
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix elimina todas las keys que empiezan con el prefijo dado
// Útil para invalidar grupos de caché (ej: "search:" invalida las búsquedas)
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.items, key)
			count++
		}
	}
	return count
}

// Clear limpia completamente el caché
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]CacheItem)
	c.mu.Unlock()
}

// Count retorna el número de items en caché (incluye expirados)
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats retorna estadísticas del caché
type CacheStats struct {
	TotalItems   int
	ExpiredItems int
	ValidItems   int
	MemoryEstMB  float64 // Estimación aproximada
}

// GetStats retorna estadísticas actuales del caché
func (c *Cache) GetStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		TotalItems: len(c.items),
	}

	now := time.Now().UnixNano()
	for _, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			stats.ExpiredItems++
		} else {
			stats.ValidItems++
		}
	}

	// Estimación muy aproximada: ~1KB por item en promedio
	stats.MemoryEstMB = float64(stats.TotalItems) * 1.0 / 1024.0

	return stats
}

// startCleanupTimer ejecuta limpieza periódica de items expirados
func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

// deleteExpired elimina todos los items expirados
func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			delete(c.items, key)
		}
	}
}

// Stop detiene la limpieza automática
func (c *Cache) Stop() {
	c.stopCleanup <- true
}

// ============================================================================
// CACHE PRESETS - CACHÉS PRE-CONFIGURADOS PARA DIFERENTES CASOS DE USO
// ============================================================================

var (
	// StationsCache - Caché para estaciones (TTL: 5 minutos)
	// Las estaciones son inmutables; sólo un alta nueva invalida el listado
	StationsCache *Cache

	// SearchCache - Caché para resultados de búsqueda (TTL: 30 segundos)
	// La topología puede cambiar por altas de conexiones, cachear poco
	SearchCache *Cache

	// StatusCache - Caché para estados de tren (TTL: 1 minuto)
	// El estado es mutable por acciones admin
	StatusCache *Cache
)

// InitCaches inicializa todos los cachés con configuraciones optimizadas
func InitCaches() {
	// Caché de estaciones: 5min TTL, limpieza cada 10min
	StationsCache = NewCache(5*time.Minute, 10*time.Minute)

	// Caché de búsquedas: 30seg TTL, limpieza cada 1min
	SearchCache = NewCache(30*time.Second, 1*time.Minute)

	// Caché de estados: 1min TTL, limpieza cada 5min
	StatusCache = NewCache(1*time.Minute, 5*time.Minute)
}

// StopCaches detiene todos los cachés
func StopCaches() {
	if StationsCache != nil {
		StationsCache.Stop()
	}
	if SearchCache != nil {
		SearchCache.Stop()
	}
	if StatusCache != nil {
		StatusCache.Stop()
	}
}

// ClearAllCaches limpia todos los cachés
func ClearAllCaches() {
	if StationsCache != nil {
		StationsCache.Clear()
	}
	if SearchCache != nil {
		SearchCache.Clear()
	}
	if StatusCache != nil {
		StatusCache.Clear()
	}
}

// GetAllCacheStats retorna estadísticas de todos los cachés
func GetAllCacheStats() map[string]CacheStats {
	stats := make(map[string]CacheStats)

	if StationsCache != nil {
		stats["stations"] = StationsCache.GetStats()
	}
	if SearchCache != nil {
		stats["search"] = SearchCache.GetStats()
	}
	if StatusCache != nil {
		stats["status"] = StatusCache.GetStats()
	}

	return stats
}
